// Package preflight provides readiness checks for the binaries and
// filesystem paths a pipeline run depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before starting a pipeline. If any check
//     fails, the run aborts instead of discovering the problem mid-stream.
//   - The CLI "framemill preflight" command displays the same checks for
//     operators setting up a host.
package preflight
