// Package batch normalizes a set of uploaded page photos in one call.
//
// Each upload is copied to a scratch input, normalized into a JPEG beside it
// and the scratch input is removed. Per-file failures are recorded on that
// file's PageResult and never abort the batch; the result slice always has
// one entry per upload, in upload order.
//
// # Scratch Layout
//
// Everything lives under a single directory of the Store (default
// "normalized/"):
//
//	normalized/temp_<id>_input.<ext>   scratch copy of the upload
//	normalized/normalized_<id>.jpg     finished page
//
// The Store abstracts where those bytes live. DiskStore writes under a root
// directory; MemoryStore keeps them in a map for tests and previews.
package batch
