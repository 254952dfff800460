package repository

const (
	createVideoRecordQuery = `INSERT INTO video_records (name, url)
					VALUES ($1, $2) RETURNING video_id, name, url, created_at`
	getVideoRecordsQuery = `SELECT video_id, name, url, created_at FROM video_records
					ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	getTotalVideoRecordsQuery = `SELECT COUNT(video_id) FROM video_records`
)
