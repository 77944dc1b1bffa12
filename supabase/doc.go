// Package supabase holds the credential store and the thin REST client the
// dashboard core uses to talk to its hosted backend: GoTrue auth endpoints,
// PostgREST profile rows, and the admin verification RPC.
package supabase
