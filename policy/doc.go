// Package policy implements the dialogue policy that turns NLU output into
// a reply: confidence gating, session-memory fallback for locations,
// cache-or-fetch resolution of coordinates, forecasts and alerts, forecast
// period selection and reply composition. The Policy is the single entry
// point the HTTP layer calls per turn; every failure below it is converted
// into a deterministic user-facing reply so no internal error type crosses
// the surface.
package policy
