// Package engine orchestrates a full rename run through its lifecycle:
// planning, execution, and resequencing. It owns the state machine and the
// outcome classification; the heavy lifting lives in the planner, executor,
// and resequencer packages.
package engine
