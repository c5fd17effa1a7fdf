// Package snippets pulls fenced code blocks out of the Markdown articles in
// docs/ so the SQL and TypeScript they show can be run or linted on their own.
//
// Only fenced blocks are read. Nothing is rendered and front matter is not
// interpreted.
package snippets
