/*
 * Copyright (C) 2021-present the geonet authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package log is the logging seam every core component is injected with.
// Components never talk to a concrete logging library directly; they hold
// a Log and call it, so the backend (zap, in this module's cmd/geonetd) is
// swappable without touching forwarding/security/dcc code.
package log

// KV is a bag of structured fields attached to a log line.
type KV = map[string]any

type Log interface {
	DEBUG(facility, event string, kv KV)
	NOTICE(facility, event string, kv KV)
	WARNING(facility, event string, kv KV)
	ERROR(facility, event string, kv KV)
}

// Nil discards everything. It is the zero-value default so components
// never have to nil-check their logger field.
type Nil struct{}

func (Nil) DEBUG(string, string, KV)   {}
func (Nil) NOTICE(string, string, KV)  {}
func (Nil) WARNING(string, string, KV) {}
func (Nil) ERROR(string, string, KV)   {}

// Of returns l, or Nil{} if l is nil, so callers can write
// `l := log.Of(cfg.Log); l.NOTICE(...)` without ever checking for nil.
func Of(l Log) Log {
	if l == nil {
		return Nil{}
	}
	return l
}
