// Package config holds the delivery settings and the accessor interface the
// delivery pipeline reads them through.
//
// Components never snapshot settings: they call the zero-argument accessors of
// a [Provider] every time a value is needed, so a [Live] provider updated by
// [Watch] takes effect on the next send, flush or timer arm.
package config
