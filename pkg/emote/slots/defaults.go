package slots

// DefaultEmotions is the slot list of a fresh or reset registry.
var DefaultEmotions = []string{
	"smile", "angry", "sad", "surprised", "scared",
	"disgusted", "confused", "embarrassed", "blush", "bored", "laughing",
}

// ReplacePolicy decides what happens to bindings when the slot list is
// replaced from text.
type ReplacePolicy string

const (
	// PreserveBindings keeps every binding; a slot name that reappears in
	// the new list shows its earlier image again.
	PreserveBindings ReplacePolicy = "preserve"
	// ClearBindings drops all bindings on replace.
	ClearBindings ReplacePolicy = "clear"
)

// ParseReplacePolicy maps a config string to a policy, defaulting to preserve.
func ParseReplacePolicy(s string) ReplacePolicy {
	if ReplacePolicy(s) == ClearBindings {
		return ClearBindings
	}
	return PreserveBindings
}

// defaultNames returns a fresh copy of DefaultEmotions.
func defaultNames() []string {
	names := make([]string, len(DefaultEmotions))
	copy(names, DefaultEmotions)
	return names
}
