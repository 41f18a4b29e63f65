package rendering

import "strings"

// latexSpecials maps characters LaTeX treats as markup to their text form.
// strings.Replacer works in one pass, so replacements are never re-escaped.
var latexSpecials = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"$", `\$`,
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"_", `\_`,
	"^", `\textasciicircum{}`,
	"~", `\textasciitilde{}`,
	"<", `\textless{}`,
	">", `\textgreater{}`,
	"|", `\textbar{}`,
)

// EscapeLaTeX makes resume text safe to place in the template body.
func EscapeLaTeX(text string) string {
	return latexSpecials.Replace(text)
}

// EscapeURL escapes the characters hyperref cannot take verbatim in a link target.
func EscapeURL(url string) string {
	r := strings.NewReplacer(`\`, "", "%", `\%`, "#", `\#`, "{", "", "}", "")
	return r.Replace(strings.TrimSpace(url))
}

// displayURL strips the scheme for link text.
func displayURL(url string) string {
	url = strings.TrimSpace(url)
	for _, prefix := range []string{"https://", "http://", "mailto:"} {
		url = strings.TrimPrefix(url, prefix)
	}
	return strings.TrimSuffix(url, "/")
}
