// Package domain models NASA FIRMS active-fire hotspot data and the
// transformations applied to it before publication.
//
// # Data Source
//
// Hotspots originate from the Fire Information for Resource Management System
// (FIRMS) 24-hour CSV feeds published at
// https://firms.modaps.eosdis.nasa.gov/active_fire/. Two instruments are
// consumed: MODIS (Terra and Aqua) and VIIRS (Suomi NPP). Both feeds share a
// header row; columns are located by name because the column sets differ.
//
// # FIRMS Data Conventions
//
// Acquisition time:
//
//	acq_date is YYYY-MM-DD, acq_time is HHMM in UTC without leading zeros,
//	e.g. "930" = 09:30. Values are zero-padded to four digits and combined.
//	Malformed values fall back to the current time (see [ParseAcquisition]).
//
// Brightness:
//
//	MODIS reports channel 21/22 brightness temperature in the "brightness"
//	column. VIIRS reports I-4 brightness in "bright_ti4". Both are Kelvin.
//
// Confidence:
//
//	MODIS reports 0-100 and is bucketed into low, nominal and high:
//
//	  <50 low | <80 nominal | >=80 high
//
//	VIIRS reports l, n or h. Non-numeric values are not interpreted and
//	land in nominal, as does anything else that fails to parse.
//
// Satellite:
//
//	T = Terra, A = Aqua, N = Suomi NPP (reported as "VIIRS"). Unknown codes
//	are prefixed with the feed's instrument, e.g. "VIIRS-1" for NOAA-20.
//
// # Spread Model
//
// The 6-hour spread radius is an empirical model of brightness, confidence
// and wind speed. See [SpreadModel].
//
// # Deduplication
//
// MODIS and VIIRS frequently detect the same fire. Detections closer than a
// threshold in raw degree space (0.01, roughly 1 km at mid-latitudes) are
// treated as the same fire and the first one seen wins. See [Deduplicate].
package domain
