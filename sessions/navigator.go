package sessions

// Navigator moves the user interface to another entry point, the way a browser router would.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// NopNavigator ignores navigation requests (headless use, tests)
type NopNavigator struct{}

func (NopNavigator) Navigate(string) {}
