package task

import "github.com/google/uuid"

// Builder assembles payloads. The RoundNAttachments flags decide whether a
// round carries the attachments field at all.
type Builder struct {
	DigestLength      int
	Round1Attachments bool
	Round2Attachments bool

	newNonce func() string
}

func NewBuilder(digestLength int, round1Attachments, round2Attachments bool) *Builder {
	return &Builder{
		DigestLength:      digestLength,
		Round1Attachments: round1Attachments,
		Round2Attachments: round2Attachments,
		newNonce:          uuid.NewString,
	}
}

// DefaultBuilder attaches an empty list in round 1 and omits it in round 2.
func DefaultBuilder() *Builder {
	return NewBuilder(DefaultDigestLength, true, false)
}

func (b *Builder) nonce() string {
	if b.newNonce == nil {
		return uuid.NewString()
	}
	return b.newNonce()
}

// Round1 builds the initial task for a submitter. Endpoint is not inspected
// here; it belongs to dispatch.
func (b *Builder) Round1(rec SubmissionRecord) Payload {
	brief := rec.Brief
	if brief == "" {
		brief = DefaultBrief
	}
	p := Payload{
		Email:         rec.Email,
		Secret:        rec.Secret,
		Task:          IDWithLength(brief, rec.Email, b.DigestLength),
		Round:         1,
		Nonce:         b.nonce(),
		Brief:         brief,
		Checks:        []string{Round1Check},
		EvaluationURL: rec.EvaluationURL,
	}
	if b.Round1Attachments {
		p.Attachments = &[]Attachment{}
	}
	return p
}

// Round2 builds the follow-up for a previously issued task. The task id is
// carried over as is.
func (b *Builder) Round2(prev IssuedTask) (Payload, error) {
	switch {
	case prev.Email == "":
		return Payload{}, missing("email")
	case prev.Secret == "":
		return Payload{}, missing("secret")
	case prev.Task == "":
		return Payload{}, missing("task")
	}

	brief := prev.Brief
	if brief == "" {
		brief = DefaultRound2Brief
	}
	p := Payload{
		Email:         prev.Email,
		Secret:        prev.Secret,
		Task:          prev.Task,
		Round:         2,
		Nonce:         b.nonce(),
		Brief:         brief,
		Checks:        []string{Round2Check},
		EvaluationURL: prev.EvaluationURL,
	}
	if b.Round2Attachments {
		p.Attachments = &[]Attachment{}
	}
	return p, nil
}
