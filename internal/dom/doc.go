/*
Package dom builds the host engine's document from page HTML.

The parsed tree (golang.org/x/net/html) stays on the Go side and remains
the source of truth for structure; each element the driver touches is
wrapped once as a native engine object carrying the DOM surface scripts
need (nodeType, tagName, textContent, getAttribute). Attachment checks walk
the live tree, so a removed element is detached immediately, not after some
cache expires.

Element location uses XPath via htmlquery.
*/
package dom
