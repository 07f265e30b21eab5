// Package luabridge owns the embedded Lua state that hosts the external
// meschooldata package and the conversion boundary between Go and Lua values.
//
// The external package is loaded with require and its module table is kept in
// the Lua registry for the lifetime of the bridge. Each entry point call looks
// the function up on that table, pushes converted arguments, and converts the
// result back.
//
// Data frames cross the boundary as Lua tables of the form
//
//	{
//	    columns = { "district_id", "school_id", ... },
//	    rows    = n,
//	    data    = { district_id = { ... }, school_id = { ... }, ... },
//	}
//
// where columns preserves column order and rows is the row count. The count
// is authoritative: nil cells leave holes in the Lua arrays, so columns are
// read by index up to rows rather than to the first hole. A bare column map
// (no columns, rows, or data fields) is also accepted on the way back; its
// columns are ordered by sorted name and measured by their largest index, so
// only trailing nil cells are unrecoverable in that form. Cells are numbers
// (integral values collapse to int), strings, booleans, or nil.
package luabridge
