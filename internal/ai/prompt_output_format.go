// prompt_output_format.go - Output format rules appended to prompts

package ai

// GetJSONOnlyRules is appended to every prompt.
func GetJSONOnlyRules() string {
	return `Output format:
- Return ONLY a single JSON object.
- Do not wrap the JSON in markdown code fences.
- Do not include any explanations or additional text before or after the JSON.`
}

// GetLicenseExtractionRules covers missing and multi-valued license fields.
func GetLicenseExtractionRules() string {
	return `
Return ONLY the JSON object with the extracted data, using the keys shown above. Use null for any missing fields.
Some fields in the document might list multiple values or span multiple lines (e.g., types of business, multiple addresses, lists of items).
For such fields, ensure you extract ALL listed values.
Combine these multiple values into a single string for the corresponding JSON field, separating distinct items with a comma or semicolon.`
}
