// Package normalize converts Raw event records into canonical Events.
//
// Date expressions are resolved through a prioritized strategy chain (ISO
// 8601 first, then locale patterns) into the fixed reference timezone; text
// fields are cleaned; location text is retained as-is with best-effort
// coordinate resolution. A record whose date cannot be resolved, or whose
// start is too far in the past, is rejected and counted, never a crash.
package normalize
