package opencv

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"gocv.io/x/gocv"
)

// solvePnPIPPESquare is cv::SOLVEPNP_IPPE_SQUARE, the solver for the four
// corners of a square marker.
const solvePnPIPPESquare = 7

// MarkerObjectPoints returns the corners of a square marker of the given
// side length in the marker's own frame (z = 0, centered on the marker), in
// the order the detector reports them: top-left, top-right, bottom-right,
// bottom-left.
func MarkerObjectPoints(length float64) []gocv.Point3f {
	h := float32(length / 2)
	return []gocv.Point3f{
		{X: -h, Y: h, Z: 0},
		{X: h, Y: h, Z: 0},
		{X: h, Y: -h, Z: 0},
		{X: -h, Y: -h, Z: 0},
	}
}

// BoardPositions returns the inner-corner positions of a flat chessboard
// with the given inner-corner count (columns, rows) and square size,
// row by row.
func BoardPositions(size image.Point, square float64) []gocv.Point3f {
	pts := make([]gocv.Point3f, 0, size.X*size.Y)
	for i := 0; i < size.Y; i++ {
		for j := 0; j < size.X; j++ {
			pts = append(pts, gocv.Point3f{
				X: float32(float64(j) * square),
				Y: float32(float64(i) * square),
				Z: 0,
			})
		}
	}
	return pts
}

// estimateMarkers solves the pose of every detected marker independently.
// Markers whose pose cannot be solved are skipped.
func estimat// markerSolver estimates the pose of one marker from its four corners.
type markerSolver func(corners []gocv.Point2f) (rvec, tvec r3.Vector, ok bool)

// estimateMarkers solves the pose of every detected marker independently.
// The result is index-aligned with ids: a marker whose pose cannot be
// solved keeps its slot with Solved false.
func estimateMarkers(corners [][]gocv.Point2f, ids []int, solve markerSolver) []vision.Marker {
	if len(ids) == 0 {
		return nil
	}

	markers := make([]vision.Marker, len(ids))
	for i, id := range ids {
		markers[i].ID = id
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		rvec, tvec, ok := solve(corners[i])
		if !ok {
			continue
		}
		markers[i].Rotation, markers[i].Translation, markers[i].Solved = rvec, tvec, true
	}
	return markers
}

func solveMarker(object []gocv.Point3f, corners []gocv.Point2f, cameraMatrix, distortion gocv.Mat) (rvec, tvec r3.Vector, ok bool) {
	obj := gocv.NewPoint3fVectorFromPoints(object)
	defer obj.Close()
	img := gocv.NewPoint2fVectorFromPoints(corners)
	defer img.Close()

	r := gocv.NewMat()
	defer r.Close()
	t := gocv.NewMat()
	defer t.Close()

	if !gocv.SolvePnP(obj, img, cameraMatrix, distortion, &r, &t, false, solvePnPIPPESquare) {
		return r3.Vector{}, r3.Vector{}, false
	}
	return matVector(r), matVector(t), true
}


	at := func(i int) float64 {
		if m.Rows() == 1 {
			return m.GetDoubleAt(0, i)
		}
		return m.GetDoubleAt(i, 0)
	}
	return r3.Vector{X: at(0), Y: at(1), Z: at(2)}
}
