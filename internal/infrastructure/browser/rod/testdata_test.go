package rod

const (
	applicationFormHTML = `<!DOCTYPE html>
<html>
<head><title>Apply</title></head>
<body>
	<h1 id="title">Undergraduate Application</h1>
	<form id="apply" onsubmit="return false;">
		<input id="firstName" type="text" name="firstName" />
		<input id="surname" type="text" name="surname" value="placeholder" />
		<select id="faculty" name="faculty">
			<option value="">Choose</option>
			<option value="eng">Engineering</option>
			<option value="sci">Science</option>
		</select>
		<input id="idDocument" type="file" name="idDocument" />
		<button id="next" type="button">Next</button>
	</form>
	<div id="status"></div>
	<script>
		document.getElementById('next').addEventListener('click', function() {
			var name = document.getElementById('firstName').value;
			var file = document.getElementById('idDocument').files.length;
			document.getElementById('status').textContent = 'Saved ' + name + ' with ' + file + ' file(s)';
		});
	</script>
</body>
</html>`

	wideHTML = `<!DOCTYPE html>
<html>
<body style="margin:0">
	<div style="width: 2400px; height: 400px; background: #3366cc;">wide</div>
</body>
</html>`
)
