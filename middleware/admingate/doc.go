// Package admingate guards dashboard routes: it renders protected content
// only for a confirmed admin session, triggers throttled session refreshes
// when the answer is unknown, and maps every other outcome to a retry view,
// a denied view, or a login redirect.
package admingate
