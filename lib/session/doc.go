// Package session defines the contract between dCAS and a script-capable
// key-value store. A store is reached through an IPool handing out ISession
// values, each pinned to one connection for the lifetime of its checkout.
//
// A session offers three primitives:
//
//   - Evaluate: run a script given its literal source
//   - Register: store a script on the server and obtain its content handle
//   - EvaluateByHandle: run a registered script by handle
//
// Handles are only valid on the server instance they were registered on. A
// server that restarted or flushed its script cache rejects the handle with
// RetCScriptNotRegistered, which callers recover from by evaluating the source.
//
// Error Taxonomy:
//
//	All failures are reported as *Error with one of the RetC* codes. Transport
//	failures (RetCTransport) are distinct from script error replies
//	(RetCScriptError). Logical outcomes of a script, such as a rejected
//	compare-and-mutate, are never errors; they are part of the script result.
//
// Implementations:
//
//   - rsession: sessions over Redis (go-redis), usable against any server
//     speaking the Redis protocol with scripting support
package session
