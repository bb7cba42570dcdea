// Package extract pulls article fields out of archived portal pages and
// candidate article links out of portal listing pages. Both parsers work on
// raw HTML through goquery; selectors are configurable so the same code can
// follow a portal redesign without a release.
package extract
