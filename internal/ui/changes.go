package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zpdzap/spinoff/internal/git"
)

type dirNode struct {
	name     string
	children map[string]*dirNode
	files    []git.FileChange
}

func newDirNode(name string) *dirNode {
	return &dirNode{name: name, children: make(map[string]*dirNode)}
}

// RenderChanges draws the files changed on a branch as a directory tree with
// line counts and uncommitted-work warnings.
func RenderChanges(title string, c git.Changes) string {
	if c.Empty() {
		return fmt.Sprintf("[%s] No changes yet", title)
	}

	root := newDirNode("")
	for _, f := range c.Files {
		parts := strings.Split(f.Path, "/")
		node := root
		for _, dir := range parts[:len(parts)-1] {
			if _, ok := node.children[dir]; !ok {
				node.children[dir] = newDirNode(dir)
			}
			node = node.children[dir]
		}
		node.files = append(node.files, f)
	}

	var b strings.Builder
	b.WriteString(diffHeaderStyle.Render(title))
	b.WriteString(diffDimStyle.Render(fmt.Sprintf("  %d commit%s", c.Commits, Plural(c.Commits))))
	b.WriteString("\n")

	renderTree(&b, root, "")

	totalAdd, totalDel, uncommitted := 0, 0, 0
	for _, f := range c.Files {
		totalAdd += f.Added
		totalDel += f.Deleted
		if f.Uncommitted != "" {
			uncommitted++
		}
	}
	b.WriteString("\n")
	summary := fmt.Sprintf("%d file%s changed", len(c.Files), Plural(len(c.Files)))
	if totalAdd > 0 {
		summary += ", " + diffAddStyle.Render(fmt.Sprintf("+%d", totalAdd))
	}
	if totalDel > 0 {
		summary += ", " + diffDelStyle.Render(fmt.Sprintf("-%d", totalDel))
	}
	b.WriteString(summary)

	if uncommitted > 0 {
		b.WriteString("\n")
		b.WriteString(diffWarnStyle.Render(fmt.Sprintf(
			"⚠ %d file%s with uncommitted changes", uncommitted, Plural(uncommitted))))
	}
	return b.String()
}

func renderTree(b *strings.Builder, node *dirNode, prefix string) {
	dirNames := make([]string, 0, len(node.children))
	for name := range node.children {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)

	total := len(dirNames) + len(node.files)
	i := 0
	branch := func() (string, string) {
		i++
		if i == total {
			return "└── ", "    "
		}
		return "├── ", "│   "
	}

	for _, d := range dirNames {
		connector, childPrefix := branch()
		b.WriteString(diffTreeStyle.Render(prefix+connector) + diffDirStyle.Render(d+"/") + "\n")
		renderTree(b, node.children[d], prefix+childPrefix)
	}
	for _, f := range node.files {
		connector, _ := branch()
		renderFile(b, prefix+connector, f)
	}
}

func renderFile(b *strings.Builder, prefix string, f git.FileChange) {
	nameStyle := diffFileStyle
	var badges []string

	switch f.Status {
	case "A":
		nameStyle = diffNewStyle
		badges = append(badges, diffNewStyle.Render("new"))
	case "D":
		nameStyle = diffDelFileStyle
		badges = append(badges, diffDelFileStyle.Render("deleted"))
	}

	switch f.Uncommitted {
	case git.Untracked:
		badges = append(badges, diffWarnStyle.Render("⚠ untracked"))
	case git.LocalDeletion:
		badges = append(badges, diffWarnStyle.Render("⚠ locally deleted"))
	case git.Modified:
		badges = append(badges, diffWarnStyle.Render("⚠ uncommitted changes"))
	}

	var counts []string
	if f.Added > 0 {
		counts = append(counts, diffAddStyle.Render(fmt.Sprintf("+%d", f.Added)))
	}
	if f.Deleted > 0 {
		counts = append(counts, diffDelStyle.Render(fmt.Sprintf("-%d", f.Deleted)))
	}

	line := diffTreeStyle.Render(prefix) + nameStyle.Render(f.Path[strings.LastIndex(f.Path, "/")+1:])
	if len(badges) > 0 {
		line += " " + strings.Join(badges, " ")
	}
	if len(counts) > 0 {
		line += "  " + strings.Join(counts, " ")
	}
	b.WriteString(line + "\n")
}

// Plural returns "s" unless n is one.
func Plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
