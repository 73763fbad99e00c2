// Package flows contains the session lifecycle orchestration: validate,
// login, register, logout, refresh. Each flow is a Run* function over a
// func-valued deps struct, so the root engine wires real stores and state
// while tests wire fakes without touching package internals. Flows never
// import the root package; shared models come from credstore.
package flows
