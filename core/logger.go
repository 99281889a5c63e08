package core

// Logger is any service that can report application events.
//
// args may hold errors, maps of extra data and at most one user.Identity which,
// when present, is attached to the report as the acting person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
