// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wire implements the compact outbound wire format using
// json-iterator/go custom type encoders rather than encoding/json: the wire
// shape (Position/Velocity as rounded [x,y] arrays, everything else as a
// named-field object) is exactly the "per-type custom encode" case
// RegisterTypeEncoderFunc exists for.
package wire

import (
	"reflect"
	"unsafe"

	jsoniter "github.com/json-iterator/go"

	"github.com/overgrid/relay/world"
)

// Message is the outbound frame: Welcome ("w"), full sync ("f"), or delta
// ("d").
type Message struct {
	T string   `json:"t"`
	U []Update `json:"u"`
	P uint32   `json:"p"`
}

// Update carries one entity's replicated state (or, for Welcome, the
// player/network id pair) keyed by network id.
type Update struct {
	I uint32                 `json:"i"`
	C map[string]interface{} `json:"c"`
}

var API = func() jsoniter.API {
	neverEmpty := func(unsafe.Pointer) bool { return false }
	jsoniter.RegisterTypeEncoderFunc(reflect.TypeOf(world.Vec2f{}).String(), encodeVec2f, neverEmpty)

	return jsoniter.Config{
		EscapeHTML:  false,
		SortMapKeys: true,
	}.Froze()
}()

// encodeVec2f writes a Vec2f as the compact rounded [x, y] array used for
// Position and Velocity, instead of the default {"x":..,"y":..} object
// encoding its json tags would otherwise produce.
func encodeVec2f(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	v := (*world.Vec2f)(ptr).Round2()
	stream.WriteArrayStart()
	stream.WriteFloat32Lossy(v.X)
	stream.WriteMore()
	stream.WriteFloat32Lossy(v.Y)
	stream.WriteArrayEnd()
}

func Marshal(msg *Message) ([]byte, error) {
	return API.Marshal(msg)
}
