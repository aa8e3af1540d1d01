package services

import (
	"fmt"

	"resumelens/resume-analyzer/internal/models"
)

// instructionTemplateVersion pins the response schema the templates below
// ask the model for. Normalization dispatches on this value; it is a
// property of the template, never inferred from the payload.
const instructionTemplateVersion = models.SchemaV2

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildStructurePrompt renders the fixed, industry-independent structure
// analysis instruction.
func (pb *PromptBuilder) BuildStructurePrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume reviewer assessing the structural quality of a resume, independent of any target role.

RESUME:
%s

Evaluate the following dimensions, each scored 0-100:
1. format - visual layout, consistency, length, section ordering
2. organization - logical grouping, chronology, scannability
3. tone - professional voice, action verbs, absence of filler
4. completeness - presence of expected sections and contact details

Return your response in the following JSON format:
{
  "scores": {"format": <0-100>, "organization": <0-100>, "tone": <0-100>, "completeness": <0-100>},
  "strengths": ["<strength>", ...],
  "improvement_areas": ["<area>", ...],
  "specific_feedback": [
    {"category": "<dimension>", "target_text": "<quoted resume text, if applicable>", "issue": "<what is wrong>", "suggestion": "<how to fix it>"}
  ]
}

Be objective and specific. Quote the resume where it supports your assessment.`, resumeText)
}

// BuildAppealPrompt renders the industry-parameterized appeal analysis
// instruction.
func (pb *PromptBuilder) BuildAppealPrompt(resumeText string, industry models.Industry) string {
	return fmt.Sprintf(`You are an experienced recruiter in the %s industry judging how appealing this resume is to hiring managers in that market.

RESUME:
%s

Evaluate the following dimensions, each scored 0-100:
1. achievement - quantified impact and results relevant to %s roles
2. skills - alignment of listed skills with what the industry hires for
3. experience - depth and progression of relevant experience
4. positioning - how clearly the candidate targets the industry

Return your response in the following JSON format:
{
  "scores": {"achievement": <0-100>, "skills": <0-100>, "experience": <0-100>, "positioning": <0-100>},
  "strengths": ["<strength>", ...],
  "improvement_areas": ["<area>", ...],
  "specific_feedback": [
    {"category": "<dimension>", "target_text": "<quoted resume text, if applicable>", "issue": "<what is wrong>", "suggestion": "<how to fix it>"}
  ]
}

Be direct. Reference concrete entries from the resume to justify each score.`, industry, resumeText, industry)
}
