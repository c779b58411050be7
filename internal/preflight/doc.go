// Package preflight provides readiness checks for the external programs,
// services, and filesystem paths vidpipe depends on.
//
// These checks run in two contexts:
//   - `vidpipe run` calls RunAll before starting and refuses to run when a
//     blocking check fails, rather than failing midway through a chain.
//   - `vidpipe doctor` shows every check, including optional ones.
package preflight
