// Package paging walks the backend's paged list endpoints.
//
// Pages have the shape {count, next, previous, results}, where next and
// previous are full URLs carrying a page query parameter. FindByID scans pages
// in order until it sees the wanted record and stops there; Walk visits every
// page. Both follow only the page number extracted from the cursor, never the
// cursor's host, and fail with ErrCursorLoop if the server hands back a page
// that was already visited.
package paging
