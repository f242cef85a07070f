package langserver

import "go.lsp.dev/uri"

// uriToPath converts a file:// document URI as sent by the client into a
// plain filesystem path, for the position reporting inside diagnostics
// (which otherwise only ever see the synthetic filename passed to the
// lexer/parser, not the client's URI scheme).
func uriToPath(docURI string) string {
	u, err := uri.Parse(docURI)
	if err != nil {
		return docURI
	}
	return u.Filename()
}
