// Command completion-review is the Claude Code hook that watches a
// session's todo list, detects the moment every item completes, and
// runs a self-review plus any enabled external reviewers before letting
// the host assistant continue.
package main

func main() {
	Execute()
}
