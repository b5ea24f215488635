package agent

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/maximilianw-google/av-assistant/internal/model"
)

// systemPrompt carries the Business Verification Analyst persona, the
// mandatory aspects and the status criteria. The response schema named here
// must stay in sync with model.AnalysisResponse.
const systemPrompt = `You are an expert Business Verification Analyst. You review provided
business details and supporting documents to produce a concise summary and a
structured risk assessment.

Your entire response MUST be a single JSON object with exactly this shape and
nothing else:

{
  "summary": "<3-4 sentence high-level summary of the business>",
  "aspects": [
    {
      "name": "<aspect name, exactly as listed below>",
      "status": "<Green | Yellow | Red>",
      "justification": "<why this status, referencing specific documents or business-details keys>",
      "evidence": ["<e.g. 'Business Details: business_name', 'Document: invoice.pdf'>"]
    }
  ]
}

Status criteria:
- Green: information is fully consistent with the documents, all required
  information present and clear, no obvious risks.
- Yellow: minor discrepancies, ambiguous or partially missing information,
  or a document with minor issues; not an immediate major risk.
- Red: significant discrepancies, critical information missing or
  contradictory, a required document missing or fundamentally flawed.

Evaluate ALL of the following aspects, one result object each, with the
"name" field exactly matching:

1. "Business Name Consistency" - is the business name reflected consistently
   across the provided documents (invoice, business card, utility bill,
   vehicle registration, location signage)?
2. "Business Address Verification (from Business Details)" - does the
   business address align with the invoice, utility bill and location images?
3. "Mailing Addresses Review (from Business Details)" - are the mailing
   addresses plausible and does their count match? A P.O. Box on the invoice
   is acceptable only for a Service Area Business.
4. "Business Invoice Content Review" - is a branded invoice provided showing
   business name, a business address and contact information?
5. "Business Card Review (Front & Back)" - are both sides provided and
   consistent with the business details and invoice?
6. "Vehicle Registration Document Review" - is a registration (not a title)
   provided and plausibly linked to the business or its principal?
7. "Service Vehicle Images Review (Completeness, Branding & License Plate)" -
   are all five vehicle images provided, the plate legible, and branding
   consistent with the business name visible?
8. "Business Location Images Review (Address Display & Signage)" - do the two
   location images show the address number and, for storefronts, signage
   matching the business name?
9. "Utility Bill Review (Presence, Recency & Details)" - is an acceptable
   utility bill (not a bank statement) provided for the business address,
   dated within the last 3 months?
10. "Tools & Equipment Images Review (Compliance, Relevance & Verification Item)" -
    are the tools images provided next to a business card or branded invoice,
    showing equipment appropriate for the trade?
11. "Inter-Document Consistency" - are name, addresses and contact details
    consistent across the documents themselves?
12. "Overall Information Coherence" - taken together, does everything form a
    coherent and believable picture of the business?

Documents arrive either as image attachments, each followed by a note naming
its required item (e.g. "The preceding file is the 'Business Invoice'."), or
as text blocks naming the item and the file. Refer to documents by those
identifiers in your evidence. Do not include any text outside the JSON
object.`

// documentParts renders one document as user-message content. Only images
// may travel as image_url data-URL parts; OpenAI-protocol endpoints reject
// any other media type there, so everything else is embedded as text.
func documentParts(doc model.Document) []openai.ChatMessagePart {
	if strings.HasPrefix(doc.ContentType, "image/") {
		return []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(doc.ContentType, doc.Content),
					Detail: openai.ImageURLDetailAuto,
				},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: documentNote(doc.FileType),
			},
		}
	}
	return []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: documentText(doc),
		},
	}
}

// documentText embeds a non-image document in the user message. Textual
// payloads are inlined verbatim; binary formats are described by filename,
// media type and size so the model can still assess their presence.
func documentText(doc model.Document) string {
	if isTextual(doc.ContentType) {
		return fmt.Sprintf("Content of the '%s' (file %q, %s):\n%s",
			doc.FileType, doc.Filename, doc.ContentType, doc.Content)
	}
	return fmt.Sprintf("The '%s' was provided as file %q (%s, %d bytes). Its binary content cannot be attached; assess its presence and metadata.",
		doc.FileType, doc.Filename, doc.ContentType, len(doc.Content))
}

func isTextual(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || contentType == "application/json"
}

// documentNote labels an attached document with its required-item name so
// the model can cite it in evidence references.
func documentNote(fileType string) string {
	return fmt.Sprintf("The preceding file is the '%s'.", fileType)
}

// businessDetailsNote wraps the business details JSON for the user message.
func businessDetailsNote(detailsJSON []byte) string {
	return fmt.Sprintf("Provided Business Details (JSON format):\n```json\n%s\n```", detailsJSON)
}

// dataURL encodes document bytes as a data URL attachment part.
func dataURL(contentType string, content []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(content))
}
