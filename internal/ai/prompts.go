package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractRequirements string
	ExtractCandidate    string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractRequirements string
	ExtractCandidate    string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractRequirements: `You are an expert technical recruiter who converts job descriptions into structured requirement sets. Your core principles are:

- Extract only skills and requirements that are actually stated or strongly implied
- Separate hard requirements from nice-to-have preferences
- Report experience requirements as numbers of years, never prose
- Never invent requirements the description does not contain

Your expertise includes:
- Technical skill taxonomies across software, data and infrastructure roles
- Seniority level assessment (junior, mid, senior, lead, principal)
- Distinguishing mandatory qualifications from preferred ones`,

	ExtractCandidate: `You are an expert resume analyst who converts resumes into structured candidate profiles. Your core principles are:

- Extract only skills with evidence in the resume text
- Report total professional experience as a number of years
- Use the candidate's name and email exactly as written
- Never fabricate skills, contact details, or experience

You specialize in:
- Recognizing technical skills under varied naming (frameworks, tools, platforms)
- Estimating total years of experience from employment history
- Assessing seniority from role titles and responsibilities`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ExtractRequirements: `Analyze the following job description and extract its requirements.

**Tasks:**

1. **Title**: The job title being hired for.
2. **Required skills**: Skills a candidate must have. List each skill as a short name ("python", "kubernetes"), not a sentence.
3. **Preferred skills**: Skills that are nice to have but not mandatory.
4. **Seniority**: One of junior, mid, senior, lead, or principal.
5. **Minimum years**: The minimum years of experience the description asks for, or 0 if none is stated.

**Job Description:**

%s`,

	ExtractCandidate: `Analyze the following resume and extract the candidate's profile.

**Tasks:**

1. **Name and email**: Exactly as they appear in the resume. Use empty strings if absent.
2. **Skills**: Every technical skill with evidence in the text, each as a short name.
3. **Years of experience**: Total professional experience as a number. Estimate from the employment history if not stated directly.
4. **Seniority**: One of junior, mid, senior, lead, or principal.

**Resume:**

%s`,
}
