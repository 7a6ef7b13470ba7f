package oracle

import (
	"strings"
	"time"

	"duit/internal/core"
)

func textPrompt(today time.Time) string {
	var b strings.Builder

	b.WriteString("You are a financial assistant. Parse the user input into STRICT JSON ")
	b.WriteString("(no comments, no trailing commas, no extra text) with these fields:\n")
	writeFieldRules(&b, today)
	b.WriteString("\nRules:\n")
	b.WriteString("- Clean up the transaction name (merchant or short description).\n")
	b.WriteString("- Keep Indonesian magnitude suffixes in the raw amount if the user wrote them (\"50rb\", \"1.2jt\").\n")
	writeCategoryRules(&b)
	writeOutputRules(&b)

	return b.String()
}

func imagePrompt(today time.Time) string {
	var b strings.Builder

	b.WriteString("You are a financial assistant. Analyze the attached receipt image and ")
	b.WriteString("extract the transaction into STRICT JSON with these fields:\n")
	writeFieldRules(&b, today)
	b.WriteString("\nRules:\n")
	b.WriteString("- name is the merchant/store name printed on the receipt.\n")
	b.WriteString("- amount is the total paid, not a line item.\n")
	writeCategoryRules(&b)
	writeOutputRules(&b)

	return b.String()
}

func writeFieldRules(b *strings.Builder, today time.Time) {
	b.WriteString("- \"name\": string\n")
	b.WriteString("- \"amount\": number, or a string when the source uses a magnitude suffix\n")
	b.WriteString("- \"currency\": 3-letter code (IDR, USD, EUR, SGD, MYR, GBP, AUD, JPY, CNY, KRW, ...)\n")
	b.WriteString("- \"datetime\": ISO 8601 string, or separate \"date\" (YYYY-MM-DD) and \"time\" (HH:MM) fields; ")
	b.WriteString("use today's date if none is given: " + today.Format("Monday, January 2, 2006") + "\n")
	b.WriteString("- \"category\": MUST be exactly one of: " + strings.Join(core.AllowedCategories, ", ") + "\n")
}

func writeCategoryRules(b *strings.Builder) {
	b.WriteString("- Food: restaurants, groceries, cafes.\n")
	b.WriteString("- Shopping: goods, clothes, electronics.\n")
	b.WriteString("- Entertainment: movies, games, hobbies.\n")
	b.WriteString("- Transportation: fuel, taxi, bus, flights.\n")
	b.WriteString("- Utilities: electricity, water, internet, phone.\n")
	b.WriteString("- Rent: housing payments.\n")
	b.WriteString("- Healthcare, Education, Travel, Subscriptions, Gifts, Investments, Taxes, Insurance, Savings: standard usage.\n")
	b.WriteString("- Other: anything else.\n")
}

func writeOutputRules(b *strings.Builder) {
	b.WriteString("\nReturn ONLY one valid raw JSON object.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")
	b.WriteString("ALWAYS include the currency code you detected.\n")
}
