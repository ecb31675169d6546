package detect

// Ordered spotting dictionaries. Alias entries map colloquial forms to
// canonical names; the remaining lists are literal names. Keep entries
// sorted roughly by how often they show up in real queries — scanning is
// linear and first-hit-per-name wins.

var placeAliases = map[string]string{
	"魔都": "上海",
	"申城": "上海",
	"帝都": "北京",
	"京城": "北京",
	"羊城": "广州",
	"鹏城": "深圳",
	"蓉城": "成都",
	"杭城": "杭州",
}

var placeNames = []string{
	"上海", "北京", "广州", "深圳", "杭州", "成都", "南京", "武汉",
	"西安", "重庆", "苏州", "天津", "香港", "澳门", "台北",
}

var organizations = []string{
	"阿里巴巴", "腾讯", "华为", "字节跳动", "百度", "京东", "美团",
	"小米", "网易", "OpenAI", "Google", "Microsoft", "Apple", "Amazon",
}

var persons = []string{
	"马云", "马化腾", "任正非", "雷军", "李彦宏", "刘强东", "张一鸣",
}

var products = []string{
	"微信", "支付宝", "抖音", "淘宝", "iPhone", "iPad", "MacBook",
	"Kindle", "ChatGPT", "Windows", "Android",
}

var concepts = []string{
	"人工智能", "机器学习", "深度学习", "大模型", "知识图谱", "向量数据库",
	"云计算", "区块链", "推荐系统", "自然语言处理", "RAG", "Transformer",
}
