package extraction

import "strings"

const extractionPrompt = `You are an expert at reading Israeli payslips (תלושי שכר) in Hebrew.

Carefully examine this payslip image and extract the following employee details.

Return ONLY a valid JSON object (no markdown fences, no explanation):
{
  "name": "שם פרטי ושם משפחה של העובד/ת",
  "employee_id": "מספר תעודת זהות, ספרות בלבד",
  "email": "כתובת דוא\"ל אם מופיעה, אחרת null",
  "month": "חודש השכר כמספר 1-12",
  "year": "שנת השכר כמספר בן 4 ספרות"
}

Detailed instructions:
1. NAME (שם עובד/ת): Look for fields labeled שם עובד, שם משפחה, שם פרטי, שם מלא, or לכבוד.
   - The name typically appears near the top of the payslip.
   - Return FIRST NAME then LAST NAME (שם פרטי + שם משפחה), in Hebrew.
   - Be precise and read each letter carefully. Hebrew letters that look similar:
     ב/כ, ג/נ, ד/ר, ה/ח/ת, ו/ז, ט/מ, ע/צ, פ/ף, כ/ך, מ/ם, נ/ן, פ/ף, צ/ץ
   - If first name and last name are in separate fields, combine them.

2. EMPLOYEE ID (ת.ז): Look for ת.ז, ת"ז, תעודת זהות, מספר זהות, מס' זהות.
   - This is a 5-9 digit Israeli ID number.
   - Return digits only, no dashes or spaces.

3. EMAIL: Look for דוא"ל, אימייל, דואר אלקטרוני, מייל, email, or an @ symbol.
   - Return null if no email is visible on the payslip.

4. MONTH & YEAR: Look for חודש, חודש שכר, תקופה, תקופת שכר, לחודש.
   - Common formats: "01/2024", "ינואר 2024", "חודש 1 שנת 2024"
   - Return month as integer (1=January/ינואר, 12=December/דצמבר).
   - Return year as 4-digit integer.

Return null for any field you truly cannot find. Be accurate and do not guess.`

// buildPrompt appends the known employee roster so the model prefers
// established spellings over near-miss readings.
func buildPrompt(knownNames []string) string {
	if len(knownNames) == 0 {
		return extractionPrompt
	}

	var b strings.Builder
	b.WriteString(extractionPrompt)
	b.WriteString("\n\nIMPORTANT: Known employees in this company:\n")
	b.WriteString(strings.Join(knownNames, ", "))
	b.WriteString("\nIf the name you read on the payslip closely matches one of these " +
		"known names, prefer the known spelling. Only use a different name " +
		"if you are confident the payslip shows a genuinely different person.")
	return b.String()
}
