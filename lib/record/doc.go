// Package record defines the lending record stored in the catalog and its bounded
// binary encoding.
//
// Encoding (big endian):
//
//	[version u8][flags u8][category u8][id u64][titleLen u16][title][authorLen u16][author]([holderLen u16][holder])
//
// Flag bit 0 marks the record as available, bit 1 marks the presence of a holder.
// An encoded record is never larger than MaxSize bytes; Encode rejects larger records
// with ErrTooLarge instead of truncating them.
package record
