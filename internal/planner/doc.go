// Package planner decides what happens to every media file under a source
// root: unsupported files are recorded, duplicate content is scheduled for
// deletion or quarantine, and each surviving file is assigned a
// deterministic {prefix}{date}-{sequence} destination with a staged
// temporary sibling for the two-phase move.
package planner
