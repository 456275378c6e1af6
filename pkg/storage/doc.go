// Package storage saves downloaded media files into an output directory.
//
// Writes go to a temporary file that is renamed into place once complete.
// The Manager remembers which filenames exist so repeated downloads of the
// same post can be skipped.
//
//	manager, err := storage.NewManager("downloads/BqdB0YHgOri")
//	if !manager.IsDownloaded("BqdB0YHgOri.jpg") {
//		_, err = manager.SaveFile(body, "BqdB0YHgOri.jpg")
//	}
package storage
