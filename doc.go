// Package texload decodes BMP and Radiance HDR texture files into in-memory
// pixel buffers.
//
// BMP files decode to 8-bit RGB or RGBA, HDR files to 32-bit float RGB. Rows
// keep their on-disk order (see Image.RowOrder), while Image.At always
// addresses the picture top row first. Failures are classified by the Err*
// sentinels and are never partial: no image is returned with an error.
//
// Preview helpers (ToneMap, Resize, EncodeTIFF) and ChannelFilter serve the
// textool command.
package texload
