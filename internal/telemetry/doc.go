package telemetry

// Package telemetry turns tagged sensor lines into stored readings.
//
// Lines look like:
//
//	Acc: 0.996 m/s^2
//	Alt: 6.515 ft
//	Lat:40.0
//	Lng:-73.5
//
// Acceleration and altitude are stored as they arrive. Latitude and longitude
// arrive as separate lines and are only stored once both halves are known.
