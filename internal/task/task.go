package task

const (
	DefaultBrief       = "generic-brief"
	DefaultRound2Brief = "Add a new feature for round 2"

	Round1Check = "README.md exists"
	Round2Check = "README.md updated"
)

// SubmissionRecord is one submitter row from the submissions source.
type SubmissionRecord struct {
	Email         string `json:"email"`
	Secret        string `json:"secret"`
	Brief         string `json:"brief"`
	EvaluationURL string `json:"evaluation_url"`
	Endpoint      string `json:"endpoint"`
}

// IssuedTask is a round 1 task that was handed out and may get a round 2
// follow-up.
type IssuedTask struct {
	Email         string `json:"email"`
	Secret        string `json:"secret"`
	Task          string `json:"task"`
	Brief         string `json:"brief,omitempty"`
	EvaluationURL string `json:"evaluation_url,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Payload is the JSON body posted to a submitter endpoint. Attachments is nil
// when the round does not carry the field at all.
type Payload struct {
	Email         string        `json:"email"`
	Secret        string        `json:"secret"`
	Task          string        `json:"task"`
	Round         int           `json:"round"`
	Nonce         string        `json:"nonce"`
	Brief         string        `json:"brief"`
	Checks        []string      `json:"checks"`
	EvaluationURL string        `json:"evaluation_url,omitempty"`
	Attachments   *[]Attachment `json:"attachments,omitempty"`
}

// Issued converts a payload back into the ledger shape used by round 2.
func (p Payload) Issued(endpoint string) IssuedTask {
	return IssuedTask{
		Email:         p.Email,
		Secret:        p.Secret,
		Task:          p.Task,
		Brief:         p.Brief,
		EvaluationURL: p.EvaluationURL,
		Endpoint:      endpoint,
	}
}
