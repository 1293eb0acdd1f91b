// Package realm exposes the document store through an embedded-database
// shaped API (objects, objectForPrimaryKey, create, write) plus typed
// repositories for the three MindKeeper collections.
//
// A Realm is an explicit handle: Open it, pass it to the components that need
// it and Close it on shutdown. Every method fails with ErrNotOpen after Close.
//
// Write only groups calls. It is not a transaction and nothing is rolled back
// when the callback fails.
package realm
