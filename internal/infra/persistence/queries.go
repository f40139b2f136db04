package persistence

const (
	queryFindByPublicKey = `
		SELECT username, label, pub_key, COALESCE(description, '')
		FROM ssh_keys
		WHERE pub_key = $1`

	queryFindByUserAndLabel = `
		SELECT username, label, pub_key, COALESCE(description, '')
		FROM ssh_keys
		WHERE username = $1 AND label = $2`

	queryListByUser = `
		SELECT username, label, pub_key, COALESCE(description, '')
		FROM ssh_keys
		WHERE username = $1
		ORDER BY label`

	queryListLabels = `
		SELECT label FROM ssh_keys WHERE username = $1`

	queryCountByUser = `
		SELECT count(*) FROM ssh_keys WHERE username = $1`

	queryExistsByPublicKey = `
		SELECT EXISTS(SELECT 1 FROM ssh_keys WHERE pub_key = $1)`

	queryInsertKey = `
		INSERT INTO ssh_keys (username, label, pub_key, description)
		VALUES ($1, $2, $3, NULLIF($4, ''))`

	queryUpdateKey = `
		UPDATE ssh_keys
		SET pub_key = $1, description = NULLIF($2, '')
		WHERE username = $3 AND label = $4`

	queryDeleteKey = `
		DELETE FROM ssh_keys WHERE username = $1 AND label = $2`

	queryGetTransaction = `
		SELECT access_token, client_id, username, access_token_valid
		FROM transactions
		WHERE access_token = $1`

	queryGetClient = `
		SELECT client_id, secret_digest, approved
		FROM clients
		WHERE client_id = $1`
)
