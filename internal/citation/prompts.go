package citation

import "strings"

// SystemPrompt steers the model toward grounded, cited answers.
const SystemPrompt = `You are ComplianceGPT, an expert AI assistant specialized in regulatory compliance for financial services.

Your role is to answer questions about regulations (GDPR, CCPA, PCI-DSS, etc.) using ONLY the provided context.

## CRITICAL RULES:

1. ONLY use information from the provided context - never use external knowledge
2. ALWAYS cite your sources - use [1], [2], etc. for each claim
3. Quote exact text when possible - use "quotation marks" for direct quotes
4. Acknowledge uncertainty - if context is insufficient, say so clearly
5. Be precise - include article numbers and section references when available

## RESPONSE FORMAT:

1. Provide a clear, direct answer to the question
2. Support each claim with citations [1], [2], etc.
3. Include relevant quotes from the source documents
4. End with a "Sources" section listing the citation details

## WHEN CONTEXT IS PARTIALLY SUFFICIENT OR SPECIALIZED:

1. Answer what you CAN from the context. Never start with "I cannot find"; lead with what IS available.
2. Acknowledge the gap professionally: "The regulations provide guidance on [X], but specific implementation details for [specialized topic] require additional expert resources."
3. Provide actionable next steps: relevant regulatory guidance bodies (ICO, EDPB, CNIL, NIST), search terms worth trying, and the kind of expert to consult (privacy lawyer, DPO, security consultant).
4. NEVER just say "I cannot find" and stop. Always provide value.

Remember: accuracy and citations are paramount. Never guess or make assumptions.`

const queryTemplate = `Based on the following context from regulatory documents, answer the user's question.

## Context:
{context}

## User Question:
{question}

## Instructions:
1. Answer using ONLY the provided context
2. Cite sources using [1], [2], etc.
3. If the context doesn't contain the answer, say "I cannot find sufficient information..."
4. Be precise and quote exact regulatory text when relevant

## Your Response:`

const comparisonTemplate = `Based on the following context from multiple regulations, compare and contrast how they address the user's question.

## Context:
{context}

## User Question:
{question}

## Instructions:
1. Compare the approaches of different regulations
2. Highlight key similarities and differences
3. Cite sources for each regulation [1], [2], etc.
4. Create a clear comparison structure

## Your Response:`

// NoContextResponse is returned verbatim when retrieval yields nothing.
const NoContextResponse = `I cannot find sufficient information in the regulatory document database to answer your question directly.

Here are some related topics I CAN help you with:

Data Protection Fundamentals:
- "What are the principles of data processing under GDPR?"
- "What is lawful basis for processing personal data?"
- "What are special categories of personal data?"

Compliance Requirements:
- "What are the data breach notification requirements?"
- "When is a Data Protection Impact Assessment required?"
- "What are the requirements for valid consent?"

Individual Rights:
- "What is the right to erasure (right to be forgotten)?"
- "What rights do data subjects have under GDPR?"
- "What is the right to data portability?"

Enforcement:
- "What are the penalties for GDPR violations?"
- "What are the maximum fines under GDPR?"

External Resources:
- GDPR Full Text (EUR-Lex): https://eur-lex.europa.eu/eli/reg/2016/679/oj
- ICO Guide to GDPR: https://ico.org.uk/for-organisations/guide-to-data-protection/guide-to-the-general-data-protection-regulation-gdpr/
- GDPR Info: https://gdpr-info.eu/

Tips for better results:
- Use specific terms like "Article 17" or "right to erasure" instead of general phrases
- Try different phrasings of your question
- Specify which regulation (GDPR, CCPA, PCI-DSS) you're asking about`

// FormatQueryPrompt fills the query template.
func FormatQueryPrompt(context, question string) string {
	out := strings.Replace(queryTemplate, "{context}", context, 1)
	return strings.Replace(out, "{question}", question, 1)
}

// FormatComparisonPrompt fills the cross-regulation comparison template.
func FormatComparisonPrompt(context, question string) string {
	out := strings.Replace(comparisonTemplate, "{context}", context, 1)
	return strings.Replace(out, "{question}", question, 1)
}
