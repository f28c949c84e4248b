// Package dashboard serves the Gold Dust web control panel.
//
// Routes:
//
//	GET  /            status card with a toggle button
//	GET  /on, /off    set the egress flag and redirect to /
//	POST /on, /off    same, for clients that avoid state-changing GETs
//	GET  /api/status  egress flag, backend health and the advisory route as JSON
//
// The panel only writes the egress flag. The dispatcher picks the change up
// on its next accepted connection.
package dashboard
