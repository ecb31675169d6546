package registry

import "github.com/noesis-ai/noesis/internal/model"

// seedRecords is the built-in default set written on first run: common
// place aliases, major organizations, a few public figures, and flagship
// products. Administrators extend it through the registry commands.
func seedRecords() []Record {
	return []Record{
		// Places and their colloquial aliases
		{Name: "上海", Type: model.EntityLocation, Aliases: []string{"魔都", "申城", "沪"}, Hierarchy: "中国/华东/上海"},
		{Name: "北京", Type: model.EntityLocation, Aliases: []string{"帝都", "京城", "京"}, Hierarchy: "中国/华北/北京"},
		{Name: "广州", Type: model.EntityLocation, Aliases: []string{"羊城", "穗"}, Hierarchy: "中国/华南/广东/广州"},
		{Name: "深圳", Type: model.EntityLocation, Aliases: []string{"鹏城"}, Hierarchy: "中国/华南/广东/深圳"},
		{Name: "杭州", Type: model.EntityLocation, Aliases: []string{"杭城"}, Hierarchy: "中国/华东/浙江/杭州"},
		{Name: "成都", Type: model.EntityLocation, Aliases: []string{"蓉城"}, Hierarchy: "中国/西南/四川/成都"},

		// Organizations
		{Name: "阿里巴巴", Type: model.EntityOrganization, Aliases: []string{"阿里", "Alibaba"}, Related: []string{"淘宝", "支付宝"}},
		{Name: "腾讯", Type: model.EntityOrganization, Aliases: []string{"Tencent"}, Related: []string{"微信"}},
		{Name: "华为", Type: model.EntityOrganization, Aliases: []string{"Huawei"}},
		{Name: "字节跳动", Type: model.EntityOrganization, Aliases: []string{"字节", "ByteDance"}, Related: []string{"抖音"}},
		{Name: "百度", Type: model.EntityOrganization, Aliases: []string{"Baidu"}},
		{Name: "OpenAI", Type: model.EntityOrganization},

		// Public figures
		{Name: "马云", Type: model.EntityPerson, Aliases: []string{"Jack Ma"}, Related: []string{"阿里巴巴"}},
		{Name: "马化腾", Type: model.EntityPerson, Aliases: []string{"Pony Ma"}, Related: []string{"腾讯"}},
		{Name: "任正非", Type: model.EntityPerson, Related: []string{"华为"}},

		// Flagship products
		{Name: "微信", Type: model.EntityProduct, Aliases: []string{"WeChat"}, Related: []string{"腾讯"}},
		{Name: "支付宝", Type: model.EntityProduct, Aliases: []string{"Alipay"}, Related: []string{"阿里巴巴"}},
		{Name: "抖音", Type: model.EntityProduct, Aliases: []string{"TikTok"}, Related: []string{"字节跳动"}},
		{Name: "iPhone", Type: model.EntityProduct, Aliases: []string{"苹果手机"}},
	}
}
