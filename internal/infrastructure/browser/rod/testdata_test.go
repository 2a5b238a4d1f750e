package rod

const (
	LoginHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="login" action="/inicio" method="get">
		<input placeholder="E-mail" name="email" />
		<input placeholder="Senha" name="password" type="password" />
		<button type="submit">ACESSAR</button>
	</form>
</body>
</html>`

	FilterHTML = `<!DOCTYPE html>
<html>
<body>
	<input type="checkbox" id="chkDate" />
	<label for="chkDate">Data</label>
	<input id="dateFrom" type="text" />
	<input id="dateLocked" type="text" />
	<div id="events"></div>
	<script>
		const locked = document.getElementById('dateLocked');
		locked.addEventListener('keydown', e => e.preventDefault());
		locked.addEventListener('blur', () => {
			document.getElementById('events').textContent += 'blur;';
		});
	</script>
</body>
</html>`

	ExportHTML = `<!DOCTYPE html>
<html>
<body>
	<a id="export" href="/file.csv">CSV</a>
</body>
</html>`
)
