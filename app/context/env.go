package context

// Environment is the interface to the process environment.
type Environment interface {
	Get(string) string
	Lookup(string) (string, bool)
	Set(string, string) error
}
