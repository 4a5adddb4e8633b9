package fsmx

type scopeTag string

const (
	scopeConfig scopeTag = "config"
	scopeState  scopeTag = "state"
)

// scopeStack tracks which configuration callback is running. It lives only as
// long as one construction and is never shared between goroutines.
type scopeStack struct {
	tags []scopeTag
}

func (s *scopeStack) push(tag scopeTag) {
	s.tags = append(s.tags, tag)
}

func (s *scopeStack) pop() {
	if len(s.tags) > 0 {
		s.tags = s.tags[:len(s.tags)-1]
	}
}

func (s *scopeStack) top() scopeTag {
	if len(s.tags) == 0 {
		return ""
	}
	return s.tags[len(s.tags)-1]
}

// require panics with *ScopeError unless tag is on top of the stack.
func (s *scopeStack) require(tag scopeTag, entryPoint string) {
	if top := s.top(); top != tag {
		panic(&ScopeError{EntryPoint: entryPoint, Required: string(tag), Actual: string(top)})
	}
}

// within runs fn with tag pushed. The pop is deferred so a panicking callback
// leaves the stack as it found it.
func (s *scopeStack) within(tag scopeTag, fn func()) {
	s.push(tag)
	defer s.pop()
	fn()
}
