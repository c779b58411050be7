// Package burnin hard-renders subtitles onto a video and exports sidecar
// subtitle documents.
//
// The subtitle document is committed to the artifact store before ffmpeg
// runs. Because every artifact lives directly under the store root, the
// document sits in the same directory as the output video; ffmpeg runs with
// that directory as its working directory and sees only the bare file name.
package burnin
