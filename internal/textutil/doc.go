// Package textutil provides text folding and similarity helpers used to
// compare bibliography entries.
//
// The primary use cases are:
//   - Folding accented and LaTeX-escaped text to plain lowercase ASCII
//   - Building compact signatures (title plus first-author surname) for
//     duplicate detection
//   - Scoring string similarity with the Ratcliff/Obershelp ratio, which
//     rewards long shared runs and stays low for short generic titles
package textutil
