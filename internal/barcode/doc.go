// Package barcode reads book identifiers from normalized page images.
//
// Back covers carry the ISBN as an EAN-13 barcode with a 978 or 979
// prefix. ScanISBN decodes that barcode with gozxing; FindISBN picks ISBNs
// out of recognized text when no barcode is printed (title and copyright
// pages).
package barcode
