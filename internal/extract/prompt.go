package extract

// ExtractionPrompt instructs the backend to emit the value+confidence
// envelope the gateway flattens. The structure here must stay in sync with
// envelopeSchemaJSON.
const ExtractionPrompt = `
You are an invoice extraction engine. Return ONLY valid JSON with this structure:
{
  "vendor_name": {"value": "string", "confidence": 0.0},
  "invoice_number": {"value": "string", "confidence": 0.0},
  "invoice_date": {"value": "YYYY-MM-DD", "confidence": 0.0},
  "currency": {"value": "string", "confidence": 0.0},
  "total_amount": {"value": 0.0, "confidence": 0.0},
  "line_items": [
    {
      "description": {"value": "string", "confidence": 0.0},
      "quantity": {"value": 0, "confidence": 0.0},
      "unit_price": {"value": 0.0, "confidence": 0.0},
      "total_price": {"value": 0.0, "confidence": 0.0}
    }
  ],
  "overall_confidence": 0.0,
  "explanations": {
    "vendor_name": "where found",
    "invoice_number": "where found",
    "invoice_date": "where found",
    "total_amount": "where found"
  }
}
`
