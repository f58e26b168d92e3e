package recognizer

import "fmt"

// imagePrompt asks the vision model for the payment fields of one
// screenshot. The model is told to ignore dates: a screenshot is
// same-day evidence and only the wall-clock time matters.
const imagePrompt = "请从这张付款截图中提取如下字段，直接返回 JSON（不要加解释、不要加 Markdown）：" +
	`{ "amount": "支付金额(数字或字符串)", ` +
	`"payee": "商家名称", ` +
	`"category": "消费类型(如:餐饮/购物/出行/转账等)", ` +
	`"time": "交易时间(如: 19:17；若包含日期请忽略日期，仅返回时间)" }`

// textPrompt wraps a free-text expense message. Unlike screenshots the
// text may carry a full date, so the model keeps whatever it finds.
func textPrompt(text string) string {
	return fmt.Sprintf(
		"从用户的记账文本中抽取字段，只返回 JSON（不要加入任何解释或 Markdown）："+
			`{ "amount": 数字, "category": "字符串", "payee": "字符串", `+
			`"time": "字符串或空", "note": "原文或摘要" }。`+
			"如果只有时间（如 19:17）仅返回 HH:MM；若无时间则返回空字符串。文本：%s",
		text,
	)
}
