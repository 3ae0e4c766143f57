package runtime

import (
	"log/slog"

	"github.com/cascadehq/cascade/pkg/domain"
)

// scope is the per-stage view of a unit of work, handed to Stage.Act. It is
// valid only for the duration of the stage invocation that received it,
// except for Resumers issued by Defer, which stay valid until resolved.
type scope struct {
	exec  *Execution
	desc  domain.Descriptor
	index int
	susp  *suspension
}

var _ domain.Scope = (*scope)(nil)

func (s *scope) Context() *domain.Context { return s.exec.values }

func (s *scope) Target() any { return s.exec.target }

func (s *scope) Insert(descs ...domain.Descriptor) { s.exec.chain.Insert(descs...) }

func (s *scope) Append(descs ...domain.Descriptor) { s.exec.chain.Append(descs...) }

func (s *scope) Logger() *slog.Logger { return s.exec.logger }

// Defer opens (or joins) this stage's suspension and issues one more
// one-shot Resumer for it. The chain pauses after the stage yields Deferred
// and resumes once every issued Resumer has resolved.
func (s *scope) Defer() domain.Resumer {
	if s.susp == nil {
		s.susp = &suspension{
			exec:  s.exec,
			index: s.index,
			stage: s.desc.Label(),
		}
	}
	return s.susp.newResumer()
}
