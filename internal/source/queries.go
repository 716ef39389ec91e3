package source

import "github.com/sportsdesk/cmx/internal/models"

// DefaultQueries returns the presets for the legacy CMS schema (SQL Server
// dialect). Paged presets declare @offset/@limit named parameters.
//
// The article exclusion list pins records with corrupted bodies that crash
// the legacy export; they are migrated by hand.
func DefaultQueries() Queries {
	return Queries{
		models.KindLeague: {
			Count: `SELECT COUNT(*) FROM vertical_subvertical`,
			Test:  `SELECT * FROM subvertical WHERE id = 6`,
			Batch: `SELECT * FROM vertical_subvertical WHERE verticalid = 7
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT * FROM vertical_subvertical WHERE verticalid = 7
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT * FROM vertical_subvertical WHERE verticalid = 7`,
		},

		models.KindCategory: {
			Count: `SELECT COUNT(*) FROM category`,
			Test:  `SELECT * FROM category WHERE id = 1`,
			Batch: `SELECT * FROM category WHERE id IN (2, 16, 17, 18, 19)
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT * FROM category WHERE id IN (2, 16, 17, 18, 19)
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT * FROM category WHERE id IN (2, 16, 17, 18, 19)`,
		},

		models.KindUser: {
			Count: `SELECT COUNT(DISTINCT c.author)
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7`,
			Test: `SELECT DISTINCT TOP 5 c.author AS distinct_author
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7`,
			Batch: `SELECT DISTINCT c.author AS distinct_author
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				ORDER BY c.author
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT DISTINCT c.author AS distinct_author
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				ORDER BY c.author
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT DISTINCT c.author AS distinct_author
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7`,
		},

		models.KindSponsor: {
			Count: `SELECT COUNT(*) FROM sponsor`,
			Test:  `SELECT * FROM sponsor WHERE id = 1`,
			Batch: `SELECT * FROM sponsor
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT * FROM sponsor
				ORDER BY id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT * FROM sponsor`,
		},

		models.KindArticle: {
			Count: `SELECT COUNT(DISTINCT c.id)
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7 AND c.type = 4 AND c.status = 'Published'`,
			Test: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				LEFT JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE c.id IN (8156, 8171, 8157, 8159)`,
			Batch: `SELECT DISTINCT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				ORDER BY c.id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				  AND c.type = 4
				  AND c.status = 'Published'
				  AND c.id NOT IN (
					8388, 8404, 8407, 8966, 15490, 17174, 17250, 17251, 17253,
					17282, 17286, 17355, 17357, 17378, 17465, 17545, 17546, 17547,
					17573, 17713, 17715, 17718, 17793, 17821, 17887, 17911, 18035,
					18039, 18084, 19667, 20037, 22691, 31143, 36040, 37775, 37888,
					38244, 38746, 38749, 38777
				  )
				ORDER BY c.post
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE c.id IN (35695, 27247, 22322, 27000, 26844)`,
		},

		models.KindVideo: {
			Count: `SELECT COUNT(DISTINCT c.id)
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7 AND c.type = 5 AND c.status = 'Published'`,
			Test: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				LEFT JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE c.id IN (8156, 8171, 8157, 8159)`,
			Batch: `SELECT DISTINCT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				ORDER BY c.id
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			All: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE cv.verticalid = 7
				  AND c.type = 5
				  AND c.status = 'Published'
				ORDER BY c.post
				OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY`,
			Custom: `SELECT c.*, cv.subverticalid, cv.verticalid
				FROM contents c
				INNER JOIN contents_vertical cv ON c.id = cv.contentid
				WHERE c.id IN (35695, 27247, 22322, 27000, 26844)`,
		},
	}
}
